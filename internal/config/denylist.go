package config

// DefaultDenylistDomains returns a curated list of domains that should never
// leave the local stores. These include banking, password managers,
// healthcare portals, authentication providers, and other sensitive
// services.
func DefaultDenylistDomains() []string {
	return []string{
		// Banking & Financial
		"chase.com",
		"bankofamerica.com",
		"wellsfargo.com",
		"citi.com",
		"usbank.com",
		"capitalone.com",
		"schwab.com",
		"fidelity.com",
		"vanguard.com",
		"robinhood.com",
		"paypal.com",
		"venmo.com",

		// Password Managers
		"1password.com",
		"lastpass.com",
		"bitwarden.com",
		"dashlane.com",

		// Authentication & Identity
		"accounts.google.com",
		"login.microsoftonline.com",
		"auth0.com",
		"okta.com",
		"login.gov",
		"id.me",

		// Healthcare & Medical
		"mychart.com",
		"kp.org",
		"healthcare.gov",
		"medicare.gov",

		// Government & Tax
		"irs.gov",
		"ssa.gov",
		"turbotax.intuit.com",
		"hrblock.com",

		// Crypto & Trading
		"coinbase.com",
		"binance.com",
		"kraken.com",
	}
}
