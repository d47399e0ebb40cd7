package models

// Collection names used by the realtime feed.
const (
	CollectionUsers     = "users"
	CollectionMenu      = "menu"
	CollectionTables    = "tables"
	CollectionInventory = "inventory"
	CollectionSales     = "sales"
	CollectionDailyCuts = "dailyCuts"
)
