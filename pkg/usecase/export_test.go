package usecase

// ParseSlackTS is exported for testing
var ParseSlackTS = parseSlackTS
