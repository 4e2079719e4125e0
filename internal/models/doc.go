// Package models defines the wire types exchanged with the festival API and the local records derived from them.
//
// The package contains three groups of types:
//
// 1. Identity: [Profile], [Role], [TokenPair] and the [SignUpRequest] body
//
// 2. Catalog records returned by list and detail endpoints
//   - [Festival] : festival detail with location and like state
//   - [Job] / [Application] : short-term festival jobs and applications to them
//   - [Review] / [Comment] : festival reviews, tips and mate posts with their comments
//
// 3. Request bodies, each implementing [Validator] with simple field presence checks
//
// Response types are decoded at the API boundary and checked with their Check methods so
// that loosely shaped JSON never flows further into the client.
package models
