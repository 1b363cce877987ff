package http

var (
	VerifySlackSignature = verifySlackSignature
	ErrorStatus          = errorStatus
	BearerToken          = bearerToken
)
