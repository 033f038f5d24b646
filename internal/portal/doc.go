// Package portal drives the vendor warranty portal.
//
// Controller is the browser capability the session needs; ChromeController
// implements it with chromedp. Session walks one authenticated browser
// through the per-site cycle:
//
//	Unauthenticated -> Authenticating -> Authenticated
//	Authenticated -> SubmittingBatch -> AwaitingExport -> Downloading
//	    -> Normalizing -> Syncing -> Authenticated
//	any error -> Failed; Close -> Done
//
// Element locators come from configuration as "id:", "css:" or "xpath:"
// strings so that portal layout changes do not require a rebuild.
package portal
