package services

import (
	"fmt"
	"sync"
	"testing"

	"slidehub/internal/models"

	"github.com/go-playground/assert/v2"
)

func TestDirectoryRegisterLookupRemove(t *testing.T) {
	directory := NewSessionDirectory()

	user := directory.Register("c1", "Alice", "deck-1", models.RoleCreator)
	assert.Equal(t, user.Nickname, "Alice")
	assert.Equal(t, directory.Lookup("c1"), user)

	removed := directory.Remove("c1")
	assert.Equal(t, removed, user)
	assert.Equal(t, directory.Lookup("c1"), (*models.SessionUser)(nil))
	assert.Equal(t, directory.Remove("c1"), (*models.SessionUser)(nil))
}

func TestDirectoryUsersOfKeepsRegistrationOrder(t *testing.T) {
	directory := NewSessionDirectory()

	directory.Register("c1", "Alice", "deck-1", models.RoleCreator)
	directory.Register("c2", "Bob", "deck-1", models.RoleViewer)
	directory.Register("c3", "Carol", "deck-2", models.RoleCreator)
	directory.Register("c4", "Dave", "deck-1", models.RoleViewer)

	users := directory.UsersOf("deck-1")
	assert.Equal(t, len(users), 3)
	assert.Equal(t, users[0].Nickname, "Alice")
	assert.Equal(t, users[1].Nickname, "Bob")
	assert.Equal(t, users[2].Nickname, "Dave")

	directory.Remove("c2")
	users = directory.UsersOf("deck-1")
	assert.Equal(t, len(users), 2)
	assert.Equal(t, users[1].Nickname, "Dave")
}

func TestDirectoryCreatorOf(t *testing.T) {
	directory := NewSessionDirectory()
	assert.Equal(t, directory.CreatorOf("deck-1"), (*models.SessionUser)(nil))

	directory.Register("c1", "Alice", "deck-1", models.RoleViewer)
	assert.Equal(t, directory.CreatorOf("deck-1"), (*models.SessionUser)(nil))

	creator := directory.Register("c2", "Bob", "deck-1", models.RoleCreator)
	assert.Equal(t, directory.CreatorOf("deck-1"), creator)

	directory.SetRole("c2", models.RoleViewer)
	assert.Equal(t, directory.CreatorOf("deck-1"), (*models.SessionUser)(nil))
}

func TestDirectorySetRoleUnknownConnection(t *testing.T) {
	directory := NewSessionDirectory()
	assert.Equal(t, directory.SetRole("nope", models.RoleEditor), (*models.SessionUser)(nil))
}

func TestDirectoryConcurrentMembership(t *testing.T) {
	directory := NewSessionDirectory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connectionID := fmt.Sprintf("c%d", i)
			directory.Register(connectionID, fmt.Sprintf("user%d", i), "deck-1", models.RoleViewer)
			directory.Lookup(connectionID)
			directory.UsersOf("deck-1")
			if i%2 == 0 {
				directory.Remove(connectionID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, len(directory.UsersOf("deck-1")), 25)
}
