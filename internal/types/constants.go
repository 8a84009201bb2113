package types

const ContextUserKey = "user"

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "token"
