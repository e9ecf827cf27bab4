// Package environment names the deployment environment (APP_ENV) and carries
// it through request contexts so logs and handlers can tell them apart.
package environment
