// Package model defines the wire and domain types shared by the optimizer
// pipeline: the request envelope, facility graph entities, transport tasks,
// and the bid output format.
package model

// Facility types.
const (
	FacilityFarm      = "FARM"
	FacilityProcessor = "PROCESSOR"
	FacilityWarehouse = "WAREHOUSE"
	FacilityRetailer  = "RETAILER"
)

// Entity statuses.
const (
	StatusActive  = "ACTIVE"
	StatusPending = "PENDING"
)

// Vehicle classes.
const (
	ClassColdChain   = "COLD_CHAIN"
	ClassRawMaterial = "RAW_MATERIAL_TRUCK"
)

// Stop actions.
const (
	ActionPickup   = "PICKUP"
	ActionDelivery = "DELIVERY"
)

// Quantity is a unit-tagged amount. Only quantities sharing a unit are
// additively comparable at the matching layer.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Item is either a sku-keyed product request or an assetID-keyed physical
// lot; both carry a quantity.
type Item struct {
	AssetID  string   `json:"assetID,omitempty"`
	SKU      string   `json:"sku,omitempty"`
	Quantity Quantity `json:"quantity"`
}

// Key returns the sku when present, else the assetID.
func (it Item) Key() string {
	if it.SKU != "" {
		return it.SKU
	}
	return it.AssetID
}

// MergeKey returns the assetID when present, else the sku. Stops merge
// their items by this key.
func (it Item) MergeKey() string {
	if it.AssetID != "" {
		return it.AssetID
	}
	return it.SKU
}

// Address is a facility location in decimal degrees.
type Address struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Facility is a node of the supply network graph.
type Facility struct {
	FacilityID string  `json:"facilityID"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	Address    Address `json:"address"`
}

// Product is a catalog entry. AverageWeight converts item counts to mass.
type Product struct {
	SKU           string   `json:"sku"`
	AverageWeight Quantity `json:"averageWeight"`
}

// DispatchRequest is an outbound shipment request from a farm or processor.
type DispatchRequest struct {
	RequestID      string `json:"requestID"`
	FromFacilityID string `json:"fromFacilityID"`
	Status         string `json:"status"`
	Items          []Item `json:"items"`
}

// ReplenishmentRequest is a retailer's restock request, items keyed by sku.
type ReplenishmentRequest struct {
	RequestID            string `json:"requestID"`
	RequestingFacilityID string `json:"requestingFacilityID"`
	Status               string `json:"status"`
	Items                []Item `json:"items"`
}

// VehicleSpecs describes a candidate vehicle's capacity and class.
type VehicleSpecs struct {
	PayloadTonnes float64 `json:"payloadTonnes"`
	Refrigerated  bool    `json:"refrigerated"`
}

// Vehicle is a candidate vehicle offered for routing.
type Vehicle struct {
	VehicleID     string       `json:"vehicleID"`
	OwnerDriverID string       `json:"ownerDriverID"`
	Specs         VehicleSpecs `json:"specs"`
}

// CapacityKg returns the vehicle payload in integer kilograms.
func (v Vehicle) CapacityKg() int64 {
	return int64(v.Specs.PayloadTonnes * 1000)
}

// AssetAvailability is one physical lot reported by the warehouse
// inventory service.
type AssetAvailability struct {
	AssetID         string   `json:"assetID"`
	CurrentQuantity Quantity `json:"currentQuantity"`
}

// TransportTask is a single-origin single-destination movement with a typed
// payload. Tasks are the homogeneous currency between the matching layer
// and the routing layer.
type TransportTask struct {
	From               string
	To                 string
	DemandKg           int64
	Items              []Item
	VehicleType        string
	OriginalRequestIDs []string
}

// Stop is one consolidated visit within a bid.
type Stop struct {
	FacilityID string `json:"facilityID"`
	Action     string `json:"action"`
	Items      []Item `json:"items"`
}

// BidAssignment names the driver/vehicle pair a bid is offered for.
type BidAssignment struct {
	DriverID  string `json:"driverID"`
	VehicleID string `json:"vehicleID"`
}

// Bid is a candidate route proposal for one vehicle.
type Bid struct {
	OriginalRequestIDs []string        `json:"originalRequestIDs"`
	BiddingAssignments []BidAssignment `json:"biddingAssignments"`
	ShipmentType       string          `json:"shipmentType"`
	Stops              []Stop          `json:"stops"`
}

// OptimizeRequest is the request envelope accepted by POST /optimize.
// Entries decode as pointers so that JSON nulls inside the arrays can be
// dropped instead of crashing the pipeline.
type OptimizeRequest struct {
	DispatchRequests      []*DispatchRequest      `json:"dispatchRequests"`
	ReplenishmentRequests []*ReplenishmentRequest `json:"replenishmentRequests"`
	AvailableVehicles     []*Vehicle              `json:"availableVehicles"`
	AllFacilities         []*Facility             `json:"allFacilities"`
	ProductCatalog        []*Product              `json:"productCatalog"`
}
