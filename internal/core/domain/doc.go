// Package domain contains the core business entities for docask:
// stores, document records, citations, and query options.
// This package has no dependencies on other packages.
package domain
