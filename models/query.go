package models

// TicketQuery narrows a catalog listing. Zero values mean "no constraint".
type TicketQuery struct {
	Status         TicketStatus
	VendorEmail    string
	AdvertisedOnly bool
	ExcludeHidden  bool
}

type BookingQuery struct {
	BuyerEmail  string
	VendorEmail string
}
