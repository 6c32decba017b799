package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"

	"proposalgen/logx"
	"proposalgen/services"
)

// BackfillProposalDurations fills duration_months on proposals that have a
// start and end date but no stored duration. Safe to call on every startup;
// returns early if nothing to migrate.
func BackfillProposalDurations(app *pocketbase.PocketBase) error {
	log := logx.Component("migrate")

	proposalsCol, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		return fmt.Errorf("migrate: could not find proposals collection: %w", err)
	}

	pending, err := app.FindRecordsByFilter(
		proposalsCol,
		"duration_months = 0 && start_date != '' && end_date != ''",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query proposals without duration: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	log.Info().Int("count", len(pending)).Msg("backfilling proposal durations")

	for _, rec := range pending {
		start := rec.GetDateTime("start_date").Time()
		end := rec.GetDateTime("end_date").Time()
		months := services.MonthsBetween(start, end)
		if months == 0 {
			continue
		}

		rec.Set("duration_months", months)
		if err := app.Save(rec); err != nil {
			log.Error().Err(err).Str("proposal", rec.Id).Msg("failed to backfill duration")
			continue
		}
		log.Debug().Str("proposal", rec.GetString("code")).Int("months", months).Msg("duration backfilled")
	}

	return nil
}
