// Package config loads the data source configuration of a repository.
//
// The configuration can be given as flat properties
//
//	directio.main=local
//	directio.main.path=/
//	directio.main.fs.path=/var/data
//
// or as a YAML or CUE document:
//
//	systemDir: /var/lib/directio
//	dataSources:
//	  - id: main
//	    kind: local
//	    path: /
//	    attributes:
//	      fs.path: /var/data
package config
