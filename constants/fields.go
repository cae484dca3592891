package constants

// ExpectedFields is the ordered list of fields the extractor always reports,
// whether or not the analysis service found them.
var ExpectedFields = []string{
	"SupplyAddress1",
	"SupplyAddress2",
	"ConsumptionPeriod",
	"AccountNo",
	"FixedEnergyPriceRate",
	"TotalPayWithAllCharges",
	"TotalEnergyCharge",
}

// Sentinel values distinguishing "field absent" from "field present but blank".
const (
	ValueNotFound = "(not found)"
	ValueEmpty    = "(empty)"
)

// APIPrefix is the path prefix for all JSON endpoints.
const APIPrefix = "/api"
