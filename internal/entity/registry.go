package entity

// Reference declares a soft foreign key from a column of this table to
// the id of a parent table. The sync engine never enforces these; the
// push order minimizes breakage and the remote store reports violations.
type Reference struct {
	Column string
	Table  string
}

// Table is one entry of the fixed sync registry. Rank encodes the
// dependency order: parents carry a lower rank than the tables that
// reference them, and both reconcilers walk the registry in slice order.
type Table struct {
	Name  string
	Rank  int
	Model interface{}
	// References lists the soft foreign keys the remote store validates.
	References []Reference
	// Unique lists business columns the remote store keeps unique
	// across live rows.
	Unique []string
	// LocalOnly lists derived or display columns stripped from push
	// payloads together with the bookkeeping columns.
	LocalOnly []string
}

// syncRegistry is the single source of truth for every synced
// collection. Append new entities at the position their rank dictates;
// never reorder existing entries, since both reconcilers and the remote
// store derive their behavior from this list.
var syncRegistry = []Table{
	{Name: "crops", Rank: 1, Model: &Crop{}},
	{Name: "customers", Rank: 1, Model: &Customer{}},
	{Name: "trees", Rank: 1, Model: &Tree{}, Unique: []string{"identifier"}},
	{Name: "suppliers", Rank: 1, Model: &Supplier{}},
	{Name: "flocks", Rank: 1, Model: &Flock{}},
	{Name: "input_inventory", Rank: 2, Model: &InputInventory{},
		References: []Reference{{Column: "supplier_id", Table: "suppliers"}}},
	{Name: "seed_batches", Rank: 2, Model: &SeedBatch{},
		References: []Reference{
			{Column: "crop_id", Table: "crops"},
			{Column: "supplier_id", Table: "suppliers"},
		}},
	{Name: "sales", Rank: 2, Model: &Sale{},
		References: []Reference{{Column: "customer_id", Table: "customers"}}},
	{Name: "flock_records", Rank: 2, Model: &FlockRecord{},
		References: []Reference{{Column: "flock_id", Table: "flocks"}}},
	{Name: "supplier_invoices", Rank: 2, Model: &SupplierInvoice{},
		References: []Reference{{Column: "supplier_id", Table: "suppliers"}}},
	{Name: "preventive_measure_schedules", Rank: 2, Model: &PreventiveMeasureSchedule{},
		References: []Reference{{Column: "flock_id", Table: "flocks"}}},
	{Name: "seedling_production_logs", Rank: 3, Model: &SeedlingProductionLog{},
		References: []Reference{
			{Column: "seed_batch_id", Table: "seed_batches"},
			{Column: "crop_id", Table: "crops"},
		}},
	{Name: "invoices", Rank: 3, Model: &Invoice{},
		References: []Reference{{Column: "sale_id", Table: "sales"}},
		Unique:     []string{"invoice_number"},
		LocalOnly:  []string{"pdf_path"}},
	{Name: "feed_logs", Rank: 3, Model: &FeedLog{},
		References: []Reference{
			{Column: "flock_id", Table: "flocks"},
			{Column: "feed_type_id", Table: "input_inventory"},
		}},
	{Name: "supplier_invoice_items", Rank: 3, Model: &SupplierInvoiceItem{},
		References: []Reference{
			{Column: "supplier_invoice_id", Table: "supplier_invoices"},
			{Column: "input_inventory_id", Table: "input_inventory"},
		}},
	{Name: "planting_logs", Rank: 4, Model: &PlantingLog{},
		References: []Reference{
			{Column: "seed_batch_id", Table: "seed_batches"},
			{Column: "seedling_production_log_id", Table: "seedling_production_logs"},
		}},
	{Name: "cultivation_logs", Rank: 5, Model: &CultivationLog{},
		References: []Reference{
			{Column: "planting_log_id", Table: "planting_logs"},
			{Column: "input_inventory_id", Table: "input_inventory"},
		}},
	{Name: "harvest_logs", Rank: 5, Model: &HarvestLog{},
		References: []Reference{
			{Column: "planting_log_id", Table: "planting_logs"},
			{Column: "tree_id", Table: "trees"},
		},
		LocalOnly: []string{"quantity_available"}},
	{Name: "reminders", Rank: 5, Model: &Reminder{},
		References: []Reference{
			{Column: "planting_log_id", Table: "planting_logs"},
			{Column: "flock_id", Table: "flocks"},
		}},
	{Name: "sale_items", Rank: 6, Model: &SaleItem{},
		References: []Reference{
			{Column: "sale_id", Table: "sales"},
			{Column: "harvest_log_id", Table: "harvest_logs"},
		}},
}

// Tables returns the registry in fixed dependency order.
func Tables() []Table {
	out := make([]Table, len(syncRegistry))
	copy(out, syncRegistry)
	return out
}

// Lookup finds a registry entry by table name.
func Lookup(name string) (Table, bool) {
	for _, table := range syncRegistry {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}

// Models returns one prototype per synced collection, in registry order,
// for schema migration.
func Models() []interface{} {
	models := make([]interface{}, 0, len(syncRegistry))
	for _, table := range syncRegistry {
		models = append(models, table.Model)
	}
	return models
}

// ScrubColumns returns every column stripped from a push payload for the
// named table: the shared bookkeeping columns plus the table's local-only
// list.
func ScrubColumns(table Table) []string {
	columns := BookkeepingColumns()
	return append(columns, table.LocalOnly...)
}
