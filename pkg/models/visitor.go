package models

import (
	"strconv"
	"time"
)

// VisitorCount is the counter value echoed back by the increment endpoint.
type VisitorCount int64

func (c VisitorCount) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// Reading is one count observed on a real page load.
type Reading struct {
	PageURL    string
	Count      VisitorCount
	ObservedAt time.Time
}
