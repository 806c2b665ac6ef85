// Package acl provides Anti-Corruption Layer (ACL) components for the Billing
// bounded context. ACL protects the Billing domain from direct dependencies on
// clinical bounded contexts (ADT bed management, OT scheduling, the service
// price master) while keeping the data it needs to raise charges.
//
// The interfaces here are ports: defined in the Billing domain, implemented in
// the infrastructure layer, following the Dependency Inversion Principle.
package acl
