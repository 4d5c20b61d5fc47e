// Package serial stores queries and terms as a small tagged XML tree and
// reads them back.
//
// The format is independent of SPARQL and loses nothing: decoding an
// encoded query yields an equal query. A typical document:
//
//	<query limit="10" flags="without-full-text-excerpt">
//	  <requestProperty property="http://www.semanticdesktop.org/ontologies/2007/01/19/nie#title" optional="true"/>
//	  <and>
//	    <literal datatype="http://www.w3.org/2001/XMLSchema#string">report</literal>
//	    <comparison property="http://www.semanticdesktop.org/ontologies/2007/03/22/nfo#fileSize" comparator="greater">
//	      <literal datatype="http://www.w3.org/2001/XMLSchema#integer">1000</literal>
//	    </comparison>
//	  </and>
//	</query>
//
// File queries use a <fileQuery> root with a fileMode attribute and
// <includeFolder url=".."/> / <excludeFolder url=".."/> children. A plain
// query carries them too when they are set.
//
// A literal whose text XML cannot hold is written with encoding="base64".
// Typed strings carry typed="true" so they read back typed. Literals with
// IRI or blank node values fail to encode with ErrUnsupportedValue.
//
// Decoding stops at the first element it does not understand. The
// returned query or term is then Invalid and the error wraps
// ErrUnknownElement or ErrMalformed.
package serial
