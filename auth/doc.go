// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth derives group admin keys and generates ids.

# Admin Keys

Admin keys are HMAC-SHA256 of the group id under the configured salt:

	adminKey := auth.GenerateAdminKey(groupID, salt)
	err := auth.ValidateAdminKey(groupID, adminKey, salt)

The key is URL-safe base64 without padding. It is returned once when the
group is created and validated on every administrative request; nothing is
stored.

# IDs

	id, err := auth.GenerateGroupID()  // 32 hex characters
*/
package auth
