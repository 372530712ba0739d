package repository

import "testing"

func TestGlobalFactoryIsSingleton(t *testing.T) {
	InitializeFactory(nil)

	first := GetGlobalFactory()
	if first == nil {
		t.Fatalf("expected a factory after initialization")
	}

	// A second initialization must not replace the instance.
	InitializeFactory(nil)
	if GetGlobalFactory() != first {
		t.Fatalf("initialization must be one-shot")
	}

	repos := GetGlobalRepositories()
	if repos == nil {
		t.Fatalf("expected repositories from the global factory")
	}
	if repos != GetGlobalRepositories() {
		t.Fatalf("expected the same repositories instance on every call")
	}
	if repos.User == nil || repos.Subscription == nil || repos.Plan == nil {
		t.Fatalf("expected all repositories to be wired: %+v", repos)
	}

	if first.GetUserRepository() != repos.User {
		t.Fatalf("factory accessor must return the shared user repository")
	}
	if first.GetSubscriptionRepository() != repos.Subscription {
		t.Fatalf("factory accessor must return the shared subscription repository")
	}
	if first.GetPlanRepository() != repos.Plan {
		t.Fatalf("factory accessor must return the shared plan repository")
	}
}
