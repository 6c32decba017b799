package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"proposalgen/logx"
	"proposalgen/services"
)

type clientDef struct {
	name        string
	cnpj        string
	contactName string
	email       string
	phone       string
	address     string
}

type proposalDef struct {
	client int
	code   string
	status string
	input  services.ProposalInput
}

var seedClients = []clientDef{
	{
		name:        "Prefeitura Municipal de Santa Rita",
		cnpj:        "11.222.333/0001-81",
		contactName: "Maria Fernandes",
		email:       "gabinete@santarita.example.gov.br",
		phone:       "(83) 3218-4400",
		address:     "Rua Virgínio Veloso Borges, 80\nCentro, Santa Rita - PB",
	},
	{
		name:        "Câmara Municipal de Bayeux",
		contactName: "João Batista",
		phone:       "(83) 3232-1010",
		address:     "Av. Liberdade, 1500\nCentro, Bayeux - PB",
	},
}

func seedInputs(kv ...any) *services.Fields {
	f := services.NewFields()
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i].(string), kv[i+1])
	}
	return f
}

func seedProposals() []proposalDef {
	manual := decimal.RequireFromString("18500.00")
	return []proposalDef{
		{
			client: 0,
			code:   "202601AC84",
			status: "GENERATED",
			input: services.ProposalInput{
				ServiceType: "AC",
				StartDate:   "2026-02-01",
				EndDate:     "2027-01-31",
				InputData:   seedInputs("pages", 350, "folders", 25, "responsible", "Maria Fernandes"),
			},
		},
		{
			client: 1,
			code:   "202601AUD85",
			status: "DRAFT",
			input: services.ProposalInput{
				ServiceType:    "AUD",
				SubType:        "NBC_TA_800",
				DurationMonths: 6,
				ManualPrice:    &manual,
				InputData:      seedInputs("exercicio", "2025"),
			},
		},
	}
}

// Seed inserts sample clients and proposals for local runs. It is safe to
// call on every startup because it returns early if any client exists.
func Seed(app *pocketbase.PocketBase) error {
	log := logx.Component("seed")

	clientsCol, err := app.FindCollectionByNameOrId("clients")
	if err != nil {
		return fmt.Errorf("seed: could not find clients collection: %w", err)
	}
	existing, err := app.CountRecords(clientsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query clients: %w", err)
	}
	if existing > 0 {
		return nil
	}

	proposalsCol, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		return fmt.Errorf("seed: could not find proposals collection: %w", err)
	}

	log.Info().Msg("clients collection is empty, inserting seed data")

	clientIDs := make([]string, len(seedClients))
	for i, d := range seedClients {
		r := core.NewRecord(clientsCol)
		r.Set("name", d.name)
		r.Set("cnpj", d.cnpj)
		r.Set("contact_name", d.contactName)
		r.Set("email", d.email)
		r.Set("phone", d.phone)
		r.Set("address", d.address)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: save client %q: %w", d.name, err)
		}
		clientIDs[i] = r.Id
	}

	assembler := services.NewAssembler(services.DefaultCatalog(), services.NewDefaultPriceCalculator())
	for _, d := range seedProposals() {
		priced, err := assembler.PriceProposal(d.input)
		if err != nil {
			return fmt.Errorf("seed: price proposal %s: %w", d.code, err)
		}
		r := core.NewRecord(proposalsCol)
		priced.ApplyTo(r)
		r.Set("code", d.code)
		r.Set("client", clientIDs[d.client])
		r.Set("status", d.status)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: save proposal %s: %w", d.code, err)
		}
	}

	log.Info().Int("clients", len(seedClients)).Int("proposals", len(seedProposals())).
		Msg("seed data inserted")
	return nil
}
