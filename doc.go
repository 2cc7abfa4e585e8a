// Package pqstep is the protocol transformation core of a PostgreSQL
// client driver: it converts between the PostgreSQL wire protocol and Go
// values, and drives a connection object through its protocol phases with
// cooperatively suspended state machines.
//
// The Transformer encodes parameter rows and decodes result rows through a
// pqtype.Map of codecs, resolving the per-column dispatch table once per
// statement instead of once per row. COPY text and binary row formatting
// live here too. The pqgen subpackage holds the connect, execute, send,
// fetch and pipeline machines and the WaitSelect driver that pumps them;
// pqconfig parses conninfo strings the way libpq does.
//
// pqstep does not parse SQL, pool connections, or negotiate
// authentication; the underlying connection object owns those concerns.
package pqstep
