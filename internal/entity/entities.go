package entity

// Crop is a cultivated plant species/variety tracked by the farm.
type Crop struct {
	SyncFields `gorm:"embedded"`
	Name       string `gorm:"column:name;size:190;not null"`
	Variety    string `gorm:"column:variety;size:190"`
	Type       string `gorm:"column:type;size:64"`
	Notes      string `gorm:"column:notes;type:text"`
}

func (Crop) TableName() string { return "crops" }

// Customer buys farm produce through the sales pipeline.
type Customer struct {
	SyncFields   `gorm:"embedded"`
	Name         string `gorm:"column:name;size:190;not null"`
	CustomerType string `gorm:"column:customer_type;size:64"`
	ContactInfo  string `gorm:"column:contact_info;size:320"`
	Address      string `gorm:"column:address;size:512"`
}

func (Customer) TableName() string { return "customers" }

// Tree is a standalone orchard tree harvested independently of planting
// logs.
type Tree struct {
	SyncFields   `gorm:"embedded"`
	Identifier   string `gorm:"column:identifier;size:120;not null"`
	Species      string `gorm:"column:species;size:190"`
	Variety      string `gorm:"column:variety;size:190"`
	PlantingDate string `gorm:"column:planting_date;size:40"`
	Location     string `gorm:"column:location;size:190"`
	Notes        string `gorm:"column:notes;type:text"`
}

func (Tree) TableName() string { return "trees" }

// Supplier provides seeds, inputs, and feed.
type Supplier struct {
	SyncFields  `gorm:"embedded"`
	Name        string `gorm:"column:name;size:190;not null"`
	ContactInfo string `gorm:"column:contact_info;size:320"`
	Address     string `gorm:"column:address;size:512"`
	Notes       string `gorm:"column:notes;type:text"`
}

func (Supplier) TableName() string { return "suppliers" }

// Flock is a managed group of poultry.
type Flock struct {
	SyncFields       `gorm:"embedded"`
	Name             string `gorm:"column:name;size:190;not null"`
	FlockType        string `gorm:"column:flock_type;size:64"`
	Breed            string `gorm:"column:breed;size:190"`
	HatchDate        string `gorm:"column:hatch_date;size:40"`
	InitialBirdCount int64  `gorm:"column:initial_bird_count;not null;default:0"`
	Notes            string `gorm:"column:notes;type:text"`
}

func (Flock) TableName() string { return "flocks" }

// InputInventory tracks purchased inputs (fertilizer, pesticide, feed).
type InputInventory struct {
	SyncFields      `gorm:"embedded"`
	Name            string  `gorm:"column:name;size:190;not null"`
	Type            string  `gorm:"column:type;size:64"`
	SupplierID      *string `gorm:"column:supplier_id;size:64;index"`
	PurchaseDate    string  `gorm:"column:purchase_date;size:40"`
	InitialQuantity float64 `gorm:"column:initial_quantity;not null;default:0"`
	CurrentQuantity float64 `gorm:"column:current_quantity;not null;default:0"`
	QuantityUnit    string  `gorm:"column:quantity_unit;size:32"`
	CostPerUnit     float64 `gorm:"column:cost_per_unit;not null;default:0"`
	Notes           string  `gorm:"column:notes;type:text"`
}

func (InputInventory) TableName() string { return "input_inventory" }

// SeedBatch is a purchased or saved batch of seed for one crop.
type SeedBatch struct {
	SyncFields      `gorm:"embedded"`
	CropID          string  `gorm:"column:crop_id;size:64;not null;index"`
	BatchCode       string  `gorm:"column:batch_code;size:120"`
	SupplierID      *string `gorm:"column:supplier_id;size:64;index"`
	PurchaseDate    string  `gorm:"column:purchase_date;size:40"`
	InitialQuantity float64 `gorm:"column:initial_quantity;not null;default:0"`
	QuantityUnit    string  `gorm:"column:quantity_unit;size:32"`
	Notes           string  `gorm:"column:notes;type:text"`
}

func (SeedBatch) TableName() string { return "seed_batches" }

// Sale records one customer transaction; line items live in sale_items.
type Sale struct {
	SyncFields    `gorm:"embedded"`
	CustomerID    *string `gorm:"column:customer_id;size:64;index"`
	SaleDate      string  `gorm:"column:sale_date;size:40;not null"`
	PaymentMethod string  `gorm:"column:payment_method;size:64"`
	PaymentStatus string  `gorm:"column:payment_status;size:64"`
	AmountPaid    float64 `gorm:"column:amount_paid;not null;default:0"`
	Notes         string  `gorm:"column:notes;type:text"`
}

func (Sale) TableName() string { return "sales" }

// FlockRecord is a dated observation for a flock (egg collection,
// mortality, weight check).
type FlockRecord struct {
	SyncFields    `gorm:"embedded"`
	FlockID       string   `gorm:"column:flock_id;size:64;not null;index"`
	RecordType    string   `gorm:"column:record_type;size:64;not null"`
	RecordDate    string   `gorm:"column:record_date;size:40;not null"`
	Quantity      float64  `gorm:"column:quantity;not null;default:0"`
	WeightKgTotal *float64 `gorm:"column:weight_kg_total"`
	Notes         string   `gorm:"column:notes;type:text"`
}

func (FlockRecord) TableName() string { return "flock_records" }

// SupplierInvoice is a received purchase invoice from a supplier.
type SupplierInvoice struct {
	SyncFields       `gorm:"embedded"`
	SupplierID       string  `gorm:"column:supplier_id;size:64;not null;index"`
	InvoiceNumber    string  `gorm:"column:invoice_number;size:120;not null"`
	InvoiceDate      string  `gorm:"column:invoice_date;size:40;not null"`
	TotalAmountGross float64 `gorm:"column:total_amount_gross;not null;default:0"`
	DiscountAmount   float64 `gorm:"column:discount_amount;not null;default:0"`
	TotalAmountNet   float64 `gorm:"column:total_amount_net;not null;default:0"`
	Status           string  `gorm:"column:status;size:64"`
}

func (SupplierInvoice) TableName() string { return "supplier_invoices" }

// PreventiveMeasureSchedule plans recurring flock health measures.
type PreventiveMeasureSchedule struct {
	SyncFields        `gorm:"embedded"`
	FlockID           string `gorm:"column:flock_id;size:64;not null;index"`
	MeasureType       string `gorm:"column:measure_type;size:120;not null"`
	Description       string `gorm:"column:description;type:text"`
	FrequencyDays     int64  `gorm:"column:frequency_days;not null;default:0"`
	LastCompletedDate string `gorm:"column:last_completed_date;size:40"`
	NextDueDate       string `gorm:"column:next_due_date;size:40"`
}

func (PreventiveMeasureSchedule) TableName() string { return "preventive_measure_schedules" }

// SeedlingProductionLog tracks seedlings raised in the nursery before
// field planting.
type SeedlingProductionLog struct {
	SyncFields                `gorm:"embedded"`
	SeedBatchID               string  `gorm:"column:seed_batch_id;size:64;not null;index"`
	CropID                    string  `gorm:"column:crop_id;size:64;not null;index"`
	SowingDate                string  `gorm:"column:sowing_date;size:40;not null"`
	QuantitySownEstimate      float64 `gorm:"column:quantity_sown_estimate;not null;default:0"`
	CurrentSeedlingsAvailable float64 `gorm:"column:current_seedlings_available;not null;default:0"`
	NurseryLocation           string  `gorm:"column:nursery_location;size:190"`
	Notes                     string  `gorm:"column:notes;type:text"`
}

func (SeedlingProductionLog) TableName() string { return "seedling_production_logs" }

// Invoice is the billing document generated for one sale.
type Invoice struct {
	SyncFields    `gorm:"embedded"`
	SaleID        string `gorm:"column:sale_id;size:64;not null;index"`
	InvoiceNumber string `gorm:"column:invoice_number;size:120;not null"`
	InvoiceDate   string `gorm:"column:invoice_date;size:40;not null"`
	Status        string `gorm:"column:status;size:64"`
	// PDFPath is where the locally rendered document lives. It never
	// reaches the remote store.
	PDFPath string `gorm:"column:pdf_path;size:512"`
}

func (Invoice) TableName() string { return "invoices" }

// FeedLog records feed dispensed to a flock from inventory.
type FeedLog struct {
	SyncFields    `gorm:"embedded"`
	FlockID       string  `gorm:"column:flock_id;size:64;not null;index"`
	FeedDate      string  `gorm:"column:feed_date;size:40;not null"`
	FeedTypeID    *string `gorm:"column:feed_type_id;size:64;index"`
	QuantityFedKg float64 `gorm:"column:quantity_fed_kg;not null;default:0"`
	Notes         string  `gorm:"column:notes;type:text"`
}

func (FeedLog) TableName() string { return "feed_logs" }

// SupplierInvoiceItem is one line of a supplier invoice, optionally
// linked to the inventory record it stocked.
type SupplierInvoiceItem struct {
	SyncFields              `gorm:"embedded"`
	SupplierInvoiceID       string  `gorm:"column:supplier_invoice_id;size:64;not null;index"`
	InputInventoryID        *string `gorm:"column:input_inventory_id;size:64;index"`
	DescriptionFromInvoice  string  `gorm:"column:description_from_invoice;size:320"`
	Quantity                float64 `gorm:"column:quantity;not null;default:0"`
	PricePerUnitGross       float64 `gorm:"column:price_per_unit_gross;not null;default:0"`
	LineTotalNet            float64 `gorm:"column:line_total_net;not null;default:0"`
}

func (SupplierInvoiceItem) TableName() string { return "supplier_invoice_items" }

// PlantingLog records seed or seedlings going into the ground.
type PlantingLog struct {
	SyncFields              `gorm:"embedded"`
	SeedBatchID             *string `gorm:"column:seed_batch_id;size:64;index"`
	SeedlingProductionLogID *string `gorm:"column:seedling_production_log_id;size:64;index"`
	PlantingDate            string  `gorm:"column:planting_date;size:40;not null"`
	Location                string  `gorm:"column:location;size:190"`
	QuantityPlanted         float64 `gorm:"column:quantity_planted;not null;default:0"`
	ExpectedHarvestDate     string  `gorm:"column:expected_harvest_date;size:40"`
	Notes                   string  `gorm:"column:notes;type:text"`
}

func (PlantingLog) TableName() string { return "planting_logs" }

// CultivationLog is a dated field activity against a planting.
type CultivationLog struct {
	SyncFields        `gorm:"embedded"`
	PlantingLogID     string  `gorm:"column:planting_log_id;size:64;not null;index"`
	ActivityDate      string  `gorm:"column:activity_date;size:40;not null"`
	ActivityType      string  `gorm:"column:activity_type;size:120"`
	InputInventoryID  *string `gorm:"column:input_inventory_id;size:64;index"`
	InputQuantityUsed float64 `gorm:"column:input_quantity_used;not null;default:0"`
	Notes             string  `gorm:"column:notes;type:text"`
}

func (CultivationLog) TableName() string { return "cultivation_logs" }

// HarvestLog records produce taken from a planting or a tree.
type HarvestLog struct {
	SyncFields        `gorm:"embedded"`
	PlantingLogID     *string `gorm:"column:planting_log_id;size:64;index"`
	TreeID            *string `gorm:"column:tree_id;size:64;index"`
	HarvestDate       string  `gorm:"column:harvest_date;size:40;not null"`
	QuantityHarvested float64 `gorm:"column:quantity_harvested;not null;default:0"`
	QuantityUnit      string  `gorm:"column:quantity_unit;size:32"`
	QualityGrade      *string `gorm:"column:quality_grade;size:32"`
	// QuantityAvailable is the locally derived remainder after sale
	// apportionment, recomputed by the UI layer. Never pushed.
	QuantityAvailable float64 `gorm:"column:quantity_available;not null;default:0"`
	Notes             string  `gorm:"column:notes;type:text"`
}

func (HarvestLog) TableName() string { return "harvest_logs" }

// Reminder is a dated follow-up attached to a planting or a flock.
type Reminder struct {
	SyncFields    `gorm:"embedded"`
	PlantingLogID *string `gorm:"column:planting_log_id;size:64;index"`
	FlockID       *string `gorm:"column:flock_id;size:64;index"`
	ActivityType  string  `gorm:"column:activity_type;size:120"`
	ReminderDate  string  `gorm:"column:reminder_date;size:40;not null"`
	Notes         string  `gorm:"column:notes;type:text"`
	IsCompleted   int     `gorm:"column:is_completed;not null;default:0"`
	CompletedAt   *string `gorm:"column:completed_at;size:40"`
}

func (Reminder) TableName() string { return "reminders" }

// SaleItem apportions harvested quantity to one sale.
type SaleItem struct {
	SyncFields    `gorm:"embedded"`
	SaleID        string  `gorm:"column:sale_id;size:64;not null;index"`
	HarvestLogID  *string `gorm:"column:harvest_log_id;size:64;index"`
	QuantitySold  float64 `gorm:"column:quantity_sold;not null;default:0"`
	PricePerUnit  float64 `gorm:"column:price_per_unit;not null;default:0"`
	DiscountType  *string `gorm:"column:discount_type;size:32"`
	DiscountValue *float64 `gorm:"column:discount_value"`
}

func (SaleItem) TableName() string { return "sale_items" }
