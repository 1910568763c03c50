package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied

	// Auth errors
	CodeAuthInvalidCredentials = "E_AUTH_INVALID_CREDENTIALS" // token invalid, expired or malformed
	CodeAuthTokenFailed        = "E_AUTH_TOKEN_FAILED"        // token generation failed
	CodeAuthEmailFailed        = "E_AUTH_EMAIL_FAILED"        // verification email could not be sent

	// Sync errors
	CodeSyncInvalidPath   = "E_SYNC_INVALID_PATH"   // path is malformed or outside a datasite
	CodeSyncNotFound      = "E_SYNC_NOT_FOUND"      // path or datasite not found
	CodeSyncAlreadyExists = "E_SYNC_ALREADY_EXISTS" // create on an existing path
	CodeSyncHashMismatch  = "E_SYNC_HASH_MISMATCH"  // apply_diff produced an unexpected hash
	CodeSyncStoreFailed   = "E_SYNC_STORE_FAILED"   // snapshot or metadata operation failed
)
