// ABOUTME: Version and product constants
// ABOUTME: Shared by the node binary, the probe and mDNS naming
package version

const (
	Version      = "0.1.0"
	Product      = "Resonate Relay"
	Manufacturer = "Resonate"
)

// String returns the product and version for logs and banners
func String() string {
	return Product + " " + Version
}
