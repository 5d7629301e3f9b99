package domain

import (
	"time"

	layoutDomain "github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

func date(s string) time.Time {
	d, err := layoutDomain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}
