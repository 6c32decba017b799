package collections

import (
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/logx"
	"proposalgen/services"
)

// ProposalStatuses are the lifecycle states of a stored proposal.
var ProposalStatuses = []string{"DRAFT", "GENERATED", "SENT", "ACCEPTED", "REJECTED"}

// Setup programmatically creates/ensures the clients and proposals
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	clients := ensureCollection(app, "clients", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "cnpj"})
		c.Fields.Add(&core.TextField{Name: "contact_name"})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.TextField{Name: "address"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	var serviceCodes []string
	for _, def := range services.DefaultCatalog().Services() {
		serviceCodes = append(serviceCodes, def.Code)
	}

	ensureCollection(app, "proposals", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "service_type",
			Required:  true,
			Values:    serviceCodes,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "sub_type"})
		c.Fields.Add(&core.RelationField{
			Name:         "client",
			CollectionId: clients.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.JSONField{Name: "input_data"})
		c.Fields.Add(&core.NumberField{Name: "total_value"})
		c.Fields.Add(&core.NumberField{Name: "base_value"})
		c.Fields.Add(&core.NumberField{Name: "duration_months", OnlyInt: true})
		c.Fields.Add(&core.DateField{Name: "start_date"})
		c.Fields.Add(&core.DateField{Name: "end_date"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    ProposalStatuses,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_proposals_code", true, "code", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	log := logx.Component("collections")

	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Debug().Str("collection", name).Msg("collection already exists, skipping creation")
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatal().Err(err).Str("collection", name).Msg("failed to create collection")
	}

	log.Info().Str("collection", name).Str("id", collection.Id).Msg("created collection")
	return collection
}
