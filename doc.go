/*
Package httpcontract builds typed HTTP clients from declarative contracts.

A contract is a struct whose exported fields are functions. Each field
describes one remote operation with struct tags:

	type Users struct {
		Get    func(ctx context.Context, id int) (*User, error)                  `endpoint:"GET /users/{id}" params:"id"`
		Find   func(ctx context.Context, name string, ids []int) ([]User, error) `endpoint:"GET /users" params:"name,ids"`
		Create func(ctx context.Context, user *User) (*User, error)              `endpoint:"POST /users" params:"user:body" tags:"write"`
		Delete func(ctx context.Context, id int) error                           `endpoint:"DELETE /users/{id}" params:"id"`
	}

Tag endpoint holds the HTTP verb and the route template. Tag params names
the arguments following ctx, in order. An argument whose name appears in
the route as {name} is substituted into the path, other named arguments
are sent in the query string. Suffix ":body" marks the argument encoded
as the request body; at most one argument can be the body. Tag tags is a
comma separated list passed to the adapter on every stage of the call.

A function may return either error or (T, error). NewClient fills every
field of the contract with an implementation:

	var users Users
	client, err := httpcontract.NewClient(&users, "https://api.example.com", &httpcontract.JSONAdapter{})
	if err != nil {
		...
	}
	defer client.Close()

	user, err := users.Get(ctx, 42)

Methods with other result shapes panic with *ContractViolation when called.
Other problems of a method (a missing or malformed tag, several bodies,
wrong parameter names) are returned by the method as *ContractViolation
without sending anything. ValidateContract reports all of them at once.

Query string rules. A nil value is sent as an empty value ("n="). A
collection is repeated once per element ("a=1&a=2"), an empty collection
is omitted. A struct which does not implement encoding.TextMarshaler is
flattened into its fields using tag "schema"; fields follow the same
rules, and two fields or parameters with the same key are an error.
Booleans are "True" and "False". Floats use the shortest representation
which round-trips.
Collections substituted into the route are joined with commas.

Adapters. An Adapter builds requests, sends them and decodes responses.
JSONAdapter and ProtobufAdapter are provided. Embed BaseAdapter in your
own adapter to get the default sending and status checking. An adapter
which also implements QueryStringBuilder controls query strings.

Errors. A response with a non-2xx status results in *TransportFailure.
A body which can not be encoded or decoded results in
*SerializationFailure. Use package errors to map them to gRPC codes.

Options of NewClient:

	httpcontract.CustomClient(transport)      // e.g. fasthttp or debugclient
	httpcontract.Authorization("Bearer xxx")  // unless the adapter sets it
	httpcontract.MaxBody(1 << 20)             // limit of response body
	httpcontract.Middleware(middleware.Logging(logger), middleware.RequestID())
	httpcontract.ErrorLogger(log.Printf)

Redirects are not followed by the default HTTP client.

Registry binds contract types to adapter types and base URLs, so clients
can be resolved by type:

	r := httpcontract.NewRegistry()
	defer r.Close()
	err := httpcontract.Register[Users, *httpcontract.JSONAdapter](r, "https://api.example.com", nil)
	...
	users, err := httpcontract.Resolve[Users](r)

Close of a client (or of the registry) cancels requests in progress. Calls
made after Close fail with ErrClosed.

GenerateOpenAPI produces an OpenAPI 3 document describing a contract.
*/
package httpcontract
