/*
Package resolver turns a service request into a ServiceDescriptor: the
endpoint, SOAP method and action, namespace and, for layouts older than 4.00,
the nfeCabecMsg header.

Resolution honours the declared contingency state. In FSDA and offline
modes no service is reachable; in EPEC mode only RecepcaoEPEC is. Any other
declared mode replaces the jurisdiction with the contingency code as the
catalog key, so SVC-AN and SVC-RS traffic goes to the virtual authorizers.

	r := resolver.New(cat, logger)
	desc, err := r.Resolve(catalog.ServiceAuthorization, "SP", catalog.Homologation, catalog.ModelNFe, state, false)
*/
package resolver
