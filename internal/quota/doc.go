// Package quota fetches the usage-quota document from the external helper
// process and provides a lenient typed view of it for presentation.
package quota
