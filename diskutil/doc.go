// Package diskutil wraps the external tools used to set up an encrypted
// volume: cryptsetup for plain and LUKS mappings, mkfs for filesystem
// creation and mount for attaching the mapped device.
//
// Each function is a single structured tool invocation. Sequencing, error
// classification and persistence are the provision package's concern; nothing
// here retries or rolls back, matching the irreversibility of the underlying
// disk operations.
//
// Destructive by design: FormatLUKS destroys whatever the device previously
// held, and the plain-container helpers exist specifically to overwrite it.
package diskutil
