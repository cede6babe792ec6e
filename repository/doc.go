// Package repository maps logical paths to data sources by longest registered
// prefix.
//
// Every data source is mounted at a container path. A logical path such as
// "out/sales/2024" is split into the container path of the deepest mount
// covering it ("out") and the component path below that mount
// ("sales/2024"). Data source instances are created on first use by the
// Factory registered for their kind.
package repository
