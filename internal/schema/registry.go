package schema

// DaysOfWeek are the day columns shared by stores and adjustments, Sunday first.
var DaysOfWeek = []string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

// WeekTotalColumn is the derived sum of the adjustment day columns.
const WeekTotalColumn = "Week_Total"

var stores = newTable(TableSpec{
	Entity:     EntityStore,
	Name:       "Stores_Master",
	Identifier: "Store_ID",
	IDStrategy: IDMaxPlusOne,
	Required:   []string{"Store_Name", "Region"},
	OrderBy:    "Store_Name",
	Columns: []ColumnSpec{
		identifier(bounded("Store_ID", 50)).labelled("Store ID"),
		bounded("Store_Name", 500).labelled("Store Name"),
		bounded("Region", 500),
		bounded("State", 50).withDefault(""),
		bounded("Active", 50).withDefault("Active"),
		bounded("Address", 255).withDefault(""),
		bounded("Supplier_Code", 50).labelled("Supplier Code").withDefault(""),
		bounded("Run_ID", 255).labelled("Run ID"),
		integer("Shelf_Limit").labelled("Shelf Limit"),
		decimal("Latitude", 9, 6),
		decimal("Longitude", 9, 6),
		flag("SUNDAY"),
		flag("MONDAY"),
		flag("TUESDAY"),
		flag("WEDNESDAY"),
		flag("THURSDAY"),
		flag("FRIDAY"),
		flag("SATURDAY"),
		flag("SPECIAL_FRIDAY"),
		flag("SPECIAL_SUNDAY"),
		bounded("INVOICED", 50),
		bounded("XERO_CODE", 50),
		bounded("XERO_CUSTOMERID", 50),
		bounded("SUN_OVERRIDE", 50),
		bounded("MON_OVERRIDE", 50),
		bounded("TUE_OVERRIDE", 50),
		bounded("WED_OVERRIDE", 50),
		bounded("THU_OVERRIDE", 50),
		bounded("FRI_OVERRIDE", 50),
		bounded("SAT_OVERRIDE", 50),
		createdAt("Created_At"),
		updatedAt("Updated_At"),
	},
})

var products = newTable(TableSpec{
	Entity:     EntityProduct,
	Name:       "Products_Master",
	Identifier: "Product_ID",
	IDStrategy: IDClientSupplied,
	Required:   []string{"Product_Description"},
	OrderBy:    "Product_Description",
	Columns: []ColumnSpec{
		identifier(bounded("Product_ID", 50)).labelled("Product ID"),
		bounded("Product_Description", 500).labelled("Product Description"),
		bounded("Product_Family", 500).labelled("Product Family"),
		bounded("WoolworthsCode", 500).labelled("Woolworths Code"),
		bounded("ColesCode", 500).labelled("Coles Code"),
		bounded("HarrisFarmCode", 500).labelled("Harris Farm Code"),
		bounded("OtherCode", 500).labelled("Other Code"),
		bounded("BakingUOM", 500).labelled("Baking UOM"),
		decimal("BakingQuantity", 10, 3).labelled("Baking Quantity"),
		integer("UnitPerProduct").labelled("Unit Per Product"),
		decimal("Wholesale_Cost_AUD", 10, 2).labelled("Wholesale Cost (AUD)"),
		decimal("RRP_AUD", 10, 2).labelled("RRP (AUD)"),
		bounded("Product_Description_Production", 500).labelled("Production Description"),
		text("Notes"),
		createdAt("Created_At"),
		updatedAt("Updated_At"),
	},
})

var adjustments = newTable(TableSpec{
	Entity:     EntityAdjustment,
	Name:       "Store_Product_Adjustments",
	Identifier: "Adjustment_ID",
	IDStrategy: IDDatabaseIdentity,
	Required:   []string{"Store_ID", "Product_ID"},
	OrderBy:    "Created_At",
	OrderDesc:  true,
	Columns: []ColumnSpec{
		identifier(integer("Adjustment_ID")).labelled("Adjustment ID"),
		bounded("Store_ID", 50).labelled("Store ID"),
		bounded("Store_Name", 255).labelled("Store Name"),
		bounded("Product_ID", 50).labelled("Product ID"),
		bounded("Product_Description", 255).labelled("Product Description"),
		integer("SUNDAY").notNull().withDefault(int64(0)),
		integer("MONDAY").notNull().withDefault(int64(0)),
		integer("TUESDAY").notNull().withDefault(int64(0)),
		integer("WEDNESDAY").notNull().withDefault(int64(0)),
		integer("THURSDAY").notNull().withDefault(int64(0)),
		integer("FRIDAY").notNull().withDefault(int64(0)),
		integer("SATURDAY").notNull().withDefault(int64(0)),
		derived(integer(WeekTotalColumn).notNull().withDefault(int64(0))).labelled("Week Total"),
		date("Effective_Date").labelled("Effective Date"),
		createdAt("Created_At"),
		updatedAt("Updated_At"),
	},
})

// regionUplifts holds one demand uplift percentage per region. The whole
// table is replaced at once.
var regionUplifts = newTable(TableSpec{
	Entity:     EntityRegionUplift,
	Name:       "Region_Percentage_Uplift",
	Identifier: "Region",
	IDStrategy: IDClientSupplied,
	Required:   []string{"Percentage"},
	OrderBy:    "Region",
	Columns: []ColumnSpec{
		identifier(bounded("Region", 100)),
		decimal("Percentage", 5, 2).notNull(),
	},
})

var profiles = newTable(TableSpec{
	Entity:     EntityProfile,
	Name:       "Adjustment_Profiles",
	Identifier: "Profile_ID",
	IDStrategy: IDDatabaseIdentity,
	Required:   []string{"Profile_Name"},
	OrderBy:    "Profile_Name",
	Columns: []ColumnSpec{
		identifier(integer("Profile_ID")).labelled("Profile ID"),
		bounded("Profile_Name", 100).labelled("Profile Name"),
		text("Description"),
		createdAt("Created_At"),
		updatedAt("Updated_At"),
	},
})

// manualAdjustments is keyed by the (Store_ID, Product_ID) pair; the
// surrogate identity only addresses rows once the pair has been resolved.
var manualAdjustments = newTable(TableSpec{
	Entity:     EntityManualAdjustment,
	Name:       "Manual_Adjustments",
	Identifier: "Manual_Adjustment_ID",
	IDStrategy: IDDatabaseIdentity,
	Required:   []string{"Store_ID", "Product_ID"},
	OrderBy:    "Store_Name",
	ThenBy:     "Product_Name",
	Columns: []ColumnSpec{
		identifier(integer("Manual_Adjustment_ID")).labelled("Manual Adjustment ID"),
		bounded("Store_ID", 50).labelled("Store ID"),
		bounded("Product_ID", 50).labelled("Product ID"),
		bounded("Store_Name", 255).labelled("Store Name"),
		bounded("Product_Name", 255).labelled("Product Name"),
		integer("SUNDAY").notNull().withDefault(int64(0)),
		integer("MONDAY").notNull().withDefault(int64(0)),
		integer("TUESDAY").notNull().withDefault(int64(0)),
		integer("WEDNESDAY").notNull().withDefault(int64(0)),
		integer("THURSDAY").notNull().withDefault(int64(0)),
		integer("FRIDAY").notNull().withDefault(int64(0)),
		integer("SATURDAY").notNull().withDefault(int64(0)),
		derived(integer(WeekTotalColumn).notNull().withDefault(int64(0))).labelled("Week Total"),
		createdAt("Created_At"),
		updatedAt("Updated_At"),
	},
})

var registry = map[Entity]*TableSpec{
	EntityStore:            stores,
	EntityProduct:          products,
	EntityAdjustment:       adjustments,
	EntityRegionUplift:     regionUplifts,
	EntityProfile:          profiles,
	EntityManualAdjustment: manualAdjustments,
}

// Get returns the table spec of an entity, or nil for an unknown entity.
func Get(e Entity) *TableSpec {
	return registry[e]
}

// Stores returns the Stores_Master spec.
func Stores() *TableSpec { return stores }

// Products returns the Products_Master spec.
func Products() *TableSpec { return products }

// Adjustments returns the Store_Product_Adjustments spec.
func Adjustments() *TableSpec { return adjustments }

// RegionUplifts returns the Region_Percentage_Uplift spec.
func RegionUplifts() *TableSpec { return regionUplifts }

// Profiles returns the Adjustment_Profiles spec.
func Profiles() *TableSpec { return profiles }

// ManualAdjustments returns the Manual_Adjustments spec.
func ManualAdjustments() *TableSpec { return manualAdjustments }

// All returns every registered table in a stable order.
func All() []*TableSpec {
	return []*TableSpec{stores, products, adjustments, regionUplifts, profiles, manualAdjustments}
}

// IsDayOfWeek reports whether name is one of the day columns.
func IsDayOfWeek(name string) bool {
	for _, d := range DaysOfWeek {
		if d == name {
			return true
		}
	}
	return false
}
