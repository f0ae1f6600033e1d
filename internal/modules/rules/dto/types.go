package dto

type ApplyAllInput struct {
	Domains []string
}

type ApplyAllOutput struct {
	Applied int
	Failed  int
}

type RetractOutput struct {
	Removed int
}

type RuleOutput struct {
	ID            int
	Domain        string
	Action        string
	ResourceTypes []string
	Priority      int
}
