package besclient

import (
	"time"

	"github.com/msto63/bes/internal/client"
)

// Exchange is one submitted input and the replies it produced
type Exchange struct {
	Input      string
	Translated bool
	Responses  []*client.Response
	Err        error
	At         time.Time
	Duration   time.Duration
}

// responseMsg is sent when the server has answered an input
type responseMsg struct {
	exchange Exchange
}
