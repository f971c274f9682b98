/*
Package schema validates documents against the published XSD files.

Schemas live in a directory laid out the way the authority distributes
them (nfe_v4.00.xsd, enviNFe_v4.00.xsd, ...). A document whose schema file
is absent is considered valid, so a missing or partial schema package never
blocks transmission.

Validation is done in process by libxml2 through its Go binding, which
needs cgo and the libxml2 development headers at build time. Each schema
is compiled once, with xs:include and xs:import resolved relative to its
file, and reused until Close.

	v := schema.NewValidator("/opt/schemas/PL_009_V4")
	defer v.Close()
	err := v.Validate(signed, v.Path("nfe", "4.00"))
*/
package schema
