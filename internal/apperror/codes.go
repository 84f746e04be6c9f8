package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidBody     Code = "INVALID_BODY"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	CodeCircuitOpen          Code = "CIRCUIT_OPEN"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Request validation codes
const (
	CodeMissingWalletAddress Code = "MISSING_WALLET_ADDRESS"
	CodeInvalidPoolIDs       Code = "INVALID_POOL_IDS"
	CodeUnknownSource        Code = "INVALID_SOURCE"
)

// Liquidity provider codes
const (
	CodeSuiRPCError        Code = "SUI_RPC_ERROR"
	CodeBluefinFetchFailed Code = "BLUEFIN_FETCH_FAILED"
	CodeBluefinBatchFailed Code = "BLUEFIN_BATCH_FAILED"
	CodeFlowXFetchFailed   Code = "FLOWX_FETCH_FAILED"
	CodePoolNotFound       Code = "POOL_NOT_FOUND"
	CodeMalformedPool      Code = "MALFORMED_POOL_DATA"
	CodeMalformedPosition  Code = "MALFORMED_POSITION_DATA"
)

// Persistence codes
const (
	CodeStoreError      Code = "STORE_ERROR"
	CodePackageNotFound Code = "PACKAGE_NOT_FOUND"
)
