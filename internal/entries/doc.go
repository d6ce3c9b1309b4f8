// Package entries translates between plaintext domain entities and their
// encrypted wire documents, and performs all CRUD against the document
// store on behalf of the signed-in user.
//
// # Wire shape
//
// Every sensitive leaf value is an independent ciphertext string produced
// by cryptox.Service: title and content directly, tags element-wise, the
// sentiment map JSON-serialized and sealed as a single blob under
// {"data": ...}, life-story locations and custom fields leaf-by-leaf, and
// the event granularity tag itself. System fields (id, userId, createdAt,
// updatedAt) and the isDraft flag stay plaintext. No plaintext sensitive
// field ever reaches the store and no ciphertext is ever returned to a
// caller.
//
// # Failure policy
//
// Get fails loudly with common.ErrDecryptionFailed when any field cannot
// be decrypted; a wrong key must never produce corrupted-but-displayed
// content. Listings and live views degrade instead: a field that fails to
// decrypt falls back to its zero value (empty string, empty map) with a
// logged warning, and the rest of the collection stays usable.
//
// # Live views
//
// Watch returns a Collection: a cancellable decrypted mirror of the
// user's documents, newest-authored first. A failed refresh keeps the
// previous snapshot; when no snapshot exists yet the collection reports a
// sticky error state distinct from "empty". Every Watch must be paired
// with Cancel on the owning context's teardown.
package entries
