// Package main Plateful Server API
//
//	@title						Plateful Server API
//	@version					1.0
//	@description				Subscription-gated meal planning backend API
//
//	@contact.name				Plateful Support
//	@contact.email				support@plateful.app
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Profile
//	@tag.description			Profile provisioning and preferences
//
//	@tag.name					Billing
//	@tag.description			Checkout, plan changes and subscription status
//
//	@tag.name					MealPlans
//	@tag.description			Meal plan generation and saved plans
package main
