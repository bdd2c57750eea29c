package tracker

import "fmt"

// AgencyIdentity names the agency a CFR title is attributed to.
type AgencyIdentity struct {
	Name string
	Code string
}

// titleAgencyMap is a simplified 1:1 title-to-agency table. The real
// mapping is many-to-many and maintained by eCFR; this table is good
// enough for size attribution. Titles 29 and 20 both belong to DOL, and
// 42 and 45 both to HHS, so multiple titles aggregate into one agency.
var titleAgencyMap = map[int]AgencyIdentity{
	1:  {Name: "General Provisions", Code: "GEN"},
	2:  {Name: "Grants and Agreements", Code: "GRANTS"},
	3:  {Name: "The President", Code: "POTUS"},
	4:  {Name: "Accounts", Code: "GAO"},
	5:  {Name: "Administrative Personnel", Code: "OPM"},
	6:  {Name: "Domestic Security", Code: "DHS"},
	7:  {Name: "Agriculture", Code: "USDA"},
	8:  {Name: "Aliens and Nationality", Code: "USCIS"},
	9:  {Name: "Animals and Animal Products", Code: "APHIS"},
	10: {Name: "Energy", Code: "DOE"},
	11: {Name: "Federal Elections", Code: "FEC"},
	12: {Name: "Banks and Banking", Code: "FRB"},
	13: {Name: "Business Credit and Assistance", Code: "SBA"},
	14: {Name: "Aeronautics and Space", Code: "FAA"},
	15: {Name: "Commerce and Foreign Trade", Code: "DOC"},
	16: {Name: "Commercial Practices", Code: "FTC"},
	17: {Name: "Commodity and Securities Exchanges", Code: "SEC"},
	18: {Name: "Conservation of Power and Water Resources", Code: "FERC"},
	19: {Name: "Customs Duties", Code: "CBP"},
	20: {Name: "Employees' Benefits", Code: "DOL"},
	21: {Name: "Food and Drugs", Code: "FDA"},
	22: {Name: "Foreign Relations", Code: "STATE"},
	23: {Name: "Highways", Code: "FHWA"},
	24: {Name: "Housing and Urban Development", Code: "HUD"},
	25: {Name: "Indians", Code: "BIA"},
	26: {Name: "Internal Revenue", Code: "IRS"},
	27: {Name: "Alcohol, Tobacco and Firearms", Code: "ATF"},
	28: {Name: "Judicial Administration", Code: "DOJ"},
	29: {Name: "Labor", Code: "DOL"},
	30: {Name: "Mineral Resources", Code: "DOI"},
	31: {Name: "Money and Finance: Treasury", Code: "TREAS"},
	32: {Name: "National Defense", Code: "DOD"},
	33: {Name: "Navigation and Navigable Waters", Code: "USCG"},
	34: {Name: "Education", Code: "ED"},
	36: {Name: "Parks, Forests, and Public Property", Code: "NPS"},
	37: {Name: "Patents, Trademarks, and Copyrights", Code: "USPTO"},
	38: {Name: "Pensions, Bonuses, and Veterans' Relief", Code: "VA"},
	39: {Name: "Postal Service", Code: "USPS"},
	40: {Name: "Protection of Environment", Code: "EPA"},
	41: {Name: "Public Contracts and Property Management", Code: "GSA"},
	42: {Name: "Public Health", Code: "HHS"},
	43: {Name: "Public Lands: Interior", Code: "BLM"},
	44: {Name: "Emergency Management and Assistance", Code: "FEMA"},
	45: {Name: "Public Welfare", Code: "HHS"},
	46: {Name: "Shipping", Code: "MARAD"},
	47: {Name: "Telecommunication", Code: "FCC"},
	48: {Name: "Federal Acquisition Regulations System", Code: "FAR"},
	49: {Name: "Transportation", Code: "DOT"},
	50: {Name: "Wildlife and Fisheries", Code: "FWS"},
}

// AgencyForTitle resolves the agency a title belongs to. Titles absent
// from the table get a synthesized identity so no input is ever dropped.
func AgencyForTitle(number int) AgencyIdentity {
	if identity, ok := titleAgencyMap[number]; ok {
		return identity
	}
	return AgencyIdentity{
		Name: fmt.Sprintf("Title %d Agency", number),
		Code: fmt.Sprintf("T%d", number),
	}
}
