// Package models defines the domain entities shared by the catalog, auth and favorites layers.
//
//   - [Course] : a catalog entry as returned by search, and the unit stored as a favorite
//   - [CourseDetails] : the full record for a single course
//   - [Profile] : the authenticated user's account
//   - [Credentials], [Registration] : auth form payloads
//   - [AuthToken] : the credential issued by the auth API
//
// Course uses the catalog's own JSON field names so the same struct serves as the persisted favorites encoding.
package models
