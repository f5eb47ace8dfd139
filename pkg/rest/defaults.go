package rest

/**
 * Environment variables
 */

// REST server env names
const RestHostEnvName = "DPLE_HOST"
const RestPortEnvName = "DPLE_PORT"

/**
 * Parameters
 */

// default listen address
const DefaultRestHost = ""
const DefaultRestPort = "8080"
