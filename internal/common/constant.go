package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "sitekeeper_session"

// Form field names shared by the web layer and validation errors.
const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldWebsiteName     = "website_name"
	FieldWebsiteURL      = "website_url"
)
