// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package config

// Default returns the configuration for the WCOData feed layout.
func Default() *Config {
	return &Config{
		Version:   CurrentConfigVersion,
		RootTable: "entity",
		KeyColumn: "entityguid",
		Classification: Classification{
			Table:  "custom_feed_entity_match_type_lookup",
			Column: "entity_match_type",
		},
		Sections: []Section{
			{Container: "Entities", Element: "Entity", MatchType: "matched_entity", SegmentFilter: true},
			{Container: "Relationships", Element: "Relationship", MatchType: "related_entity"},
			{Container: "EntityDeletes", Element: "EntityDelete", Table: "entitydeletes"},
		},
		Relations: []Relation{
			{Parent: "entityenforcement", Key: "entityenforcementguid", Children: []string{"entityenforcementsubcategory"}},
			{Parent: "entitypep", Key: "entitypepguid", Children: []string{"entitypepsubcategory"}},
			{Parent: "entitysanction", Key: "entitysanctionguid", Children: []string{"consolidatedsanction"}},
			{Parent: "entitysoe", Key: "entitysoeguid", Children: []string{"entitysoedomain", "entitysoesubcategory"}},
		},
		Tables: []string{
			"entity",
			"entityaddress",
			"entityalias",
			"entitycountryassociation",
			"entitydob",
			"entityidentifications",
			"entityposition",
			"entityrelationships",
			"entityremark",
			"entitysourceitem",
			"entityadversemedia",
			"entityenforcement",
			"entityenforcementsubcategory",
			"entitypep",
			"entitypepsubcategory",
			"entitysanction",
			"consolidatedsanction",
			"entitysoe",
			"entitysoedomain",
			"entitysoesubcategory",
			"entityidentification",
			"entitydeletes",
		},
		Segments: Segments{
			Element: "AdditionalSegments",
			Tables: []SegmentTable{
				{Table: "associatedentity", GUIDColumn: "associatedentityguid", Label: "Associated Entity"},
				{Table: "fatcatreginst", GUIDColumn: "fatcatreginstguid", Label: "FATCA Reg Inst"},
				{Table: "marijuanaregbus", GUIDColumn: "marijuanaregbusguid", Label: "Marijuana Reg Bus"},
				{Table: "ownershiporcontrol", GUIDColumn: "ownershiporcontrolguid", Label: "Ownership Or Control"},
				{Table: "swiftbicentity", GUIDColumn: "swiftbicentityguid", Label: "SWIFT BIC Entity"},
				{Table: "ihsofacvessels", GUIDColumn: "ihsofacvesselsguid", Label: "IHS OFAC Vessels", MultiField: true},
				{Table: "ihsregvessels", GUIDColumn: "ihsregvesselsguid", Label: "IHS Reg Vessels", MultiField: true},
				{Table: "uaemsb", GUIDColumn: "uaemsbguid", Label: "UAE MSB", MultiField: true},
				{Table: "usmsb", GUIDColumn: "usmsbguid", Label: "US MSB", MultiField: true},
			},
		},
		Attributes: Attributes{
			Table:         "entity_element_details_consolidated",
			ElementColumn: "element",
			ValueColumn:   "value",
			Separator:     ", ",
		},
		Filters:  Filters{RequireSegments: SegmentPolicyNone},
		Strategy: StrategyJoin,
		Window:   DefaultWindow,
	}
}
