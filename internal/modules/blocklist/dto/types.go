package dto

import "time"

type AddInput struct {
	Site string
}

type RemoveInput struct {
	Site string
}

type SiteOutput struct {
	Domain   string
	Position int
	AddedAt  time.Time
}

type MutateOutput struct {
	Domain  string
	Changed bool
}
