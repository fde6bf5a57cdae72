// Package internaldefs holds the shared metric definitions (stable names and
// help strings) consumed by the OTel and Prometheus exporters. It exists so
// both exporters render identical series without duplicating the tables.
package internaldefs
