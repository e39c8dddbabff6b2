package usecase

// LookupOrder is exported for testing
var LookupOrder = lookupOrder
