package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidBody:     "Invalid request body",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",
	CodeCircuitOpen:          "Circuit breaker is open",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	CodeMissingWalletAddress: "Missing wallet address",
	CodeInvalidPoolIDs:       "poolIds must be a non-empty array",
	CodeUnknownSource:        "source must be bluefin or flowx",

	CodeSuiRPCError:        "Sui RPC call failed",
	CodeBluefinFetchFailed: "Failed to fetch Bluefin pool detail",
	CodeBluefinBatchFailed: "Failed to fetch Bluefin batch pool stats",
	CodeFlowXFetchFailed:   "Failed to fetch pool",
	CodePoolNotFound:       "Pool not found",
	CodeMalformedPool:      "Malformed pool data",
	CodeMalformedPosition:  "Malformed position data",

	CodeStoreError:      "Store operation failed",
	CodePackageNotFound: "Package not found",
}

// Message returns the default message for code.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return string(code)
}
