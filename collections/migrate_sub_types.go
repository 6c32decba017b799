package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"

	"proposalgen/logx"
	"proposalgen/services"
)

// MigrateLegacySubTypes copies the "subType" kept inside input_data by older
// proposals into the sub_type field. Safe to call on every startup.
func MigrateLegacySubTypes(app *pocketbase.PocketBase) error {
	log := logx.Component("migrate_sub_types")

	proposalsCol, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		return fmt.Errorf("migrate_sub_types: could not find proposals collection: %w", err)
	}

	candidates, err := app.FindRecordsByFilter(proposalsCol, "sub_type = ''", "", 0, 0, nil)
	if err != nil {
		return fmt.Errorf("migrate_sub_types: could not query proposals: %w", err)
	}

	for _, rec := range candidates {
		p, err := services.ProposalFromRecord(rec)
		if err != nil {
			log.Warn().Err(err).Str("proposal", rec.Id).Msg("skipping unreadable proposal")
			continue
		}
		subType := p.InputData.String("subType")
		if subType == "" {
			continue
		}

		rec.Set("sub_type", subType)
		if err := app.Save(rec); err != nil {
			log.Error().Err(err).Str("proposal", rec.Id).Msg("failed to migrate sub type")
			continue
		}
	}

	return nil
}
