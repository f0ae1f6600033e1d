package out

import (
	"context"

	blocklistin "focus/internal/modules/blocklist/port/in"
	sessionout "focus/internal/modules/session/port/out"
)

type BlocklistSourceAdapter struct {
	blocklist blocklistin.Usecase
}

func NewBlocklistSourceAdapter(blocklist blocklistin.Usecase) sessionout.SiteSource {
	return &BlocklistSourceAdapter{blocklist: blocklist}
}

func (a *BlocklistSourceAdapter) Domains(ctx context.Context) ([]string, error) {
	return a.blocklist.Domains(ctx)
}
