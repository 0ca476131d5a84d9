// Package config loads the settings of the default database connection.
//
// A minimal config/database.yaml:
//
//	database:
//	  driver: mysql
//	  host: localhost
//	  port: 3306
//	  name: app
//	  user: app
//	  password: secret
//	logging:
//	  level: debug
//	  format: text
//
// Every key can be overridden through HEFESTOS_* environment variables, and
// HEFESTOS_CONFIG selects a different file.
package config
