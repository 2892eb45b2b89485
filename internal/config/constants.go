package config

// Application metadata
const (
	AppName        = "spare-demand-forecast"
	AppDisplayName = "Spare Parts Demand Forecast"
	EnvPrefix      = "DEMAND"
)

// Forecast defaults. The horizon and window are fixed at thirty days for the
// interactive surface; operators may widen them through configuration.
const (
	DefaultHorizonDays   = 30
	DefaultWindowDays    = 30
	DefaultTailRows      = 30
	DefaultIntervalWidth = 0.80
)

// Upload column names
const (
	ColumnDate     = "date"
	ColumnSKU      = "sku"
	ColumnQuantity = "quantity"
)

// Logging
const (
	DefaultLogFile = "logs/app.log"
)
