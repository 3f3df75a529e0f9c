/*
Package graphql implements ports.ScenarioAPI and ports.UserAPI against the remote
GraphQL service.

Catalog and user operations answer with an envelope:

	{ status, message, statusCode, data, error }

where anything but status "success" is a failure. Scenario mutations answer with
their own result objects. Every failure is returned as a *domain.RemoteError:
transport problems and non-2xx responses are "network", GraphQL errors and
rejected envelopes are "validation", and malformed or empty answers are "generic".
*/
package graphql
