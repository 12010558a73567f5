package web

import (
	"time"

	"github.com/ericfisherdev/clinicauth/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

var providerLabels = map[string]string{
	model.ProviderGoogle: "Google",
	model.ProviderGitHub: "GitHub",
}

// toLoginViewModel builds an empty email-step view model.
func toLoginViewModel(clinicName, csrf string, providers []string) viewmodel.LoginViewModel {
	vm := viewmodel.LoginViewModel{
		ClinicName: clinicName,
		CSRFToken:  csrf,
	}
	for _, name := range providers {
		label, ok := providerLabels[name]
		if !ok {
			label = name
		}
		vm.Providers = append(vm.Providers, viewmodel.ProviderButton{
			Name:  name,
			Label: label,
			URL:   "/auth/oauth/" + name,
		})
	}
	return vm
}

// toHomeViewModel converts a domain Account for the landing page. Accounts
// without a display name are greeted by email.
func toHomeViewModel(clinicName, csrf string, account model.Account) viewmodel.HomeViewModel {
	vm := viewmodel.HomeViewModel{
		ClinicName:  clinicName,
		CSRFToken:   csrf,
		DisplayName: account.DisplayName,
		Email:       account.Email,
	}
	if vm.DisplayName == "" {
		vm.DisplayName = account.Email
	}
	if account.IsVerified() {
		vm.VerifiedAt = account.VerifiedAt.UTC().Format(time.DateOnly)
	}
	return vm
}
