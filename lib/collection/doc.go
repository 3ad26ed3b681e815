// Package collection provides Store, a CRUD list of entities kept in one
// reactive.Value and persisted as a single JSON array.
//
// Entities implement Entity by returning their identity. Identities are not
// enforced to be unique: Add appends even if the identity already exists,
// while Edit and Remove affect every entity with the given identity.
//
// Usage Example:
//
//	type Place struct {
//		ID   int    `json:"id"`
//		Name string `json:"name"`
//	}
//
//	func (p Place) EntityID() int { return p.ID }
//
//	places := collection.New[Place, int](store, "places")
//	places.Add(Place{ID: 1, Name: "Roastery"})
//	places.Edit(1, collection.Changes{"name": "Old Roastery"})
package collection
